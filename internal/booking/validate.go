package booking

import (
	"strings"

	"github.com/diagnosis/concierge/internal/utils"
)

const minPasswordLen = 8

// ValidateCategoryStep checks the step 2 selection and replaces the field
// error map with what it finds.
func (f *Flow) ValidateCategoryStep() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateCategoryStep()
}

// The validators below must hold f.mu.

func (f *Flow) validateLogin() bool {
	errs := map[string]string{}
	validateEmail(errs, f.creds.Email)
	if f.creds.Password == "" {
		errs["password"] = "Password is required"
	}
	f.errors = errs
	return len(errs) == 0
}

func (f *Flow) validateRegister() bool {
	c := f.creds
	errs := map[string]string{}

	if strings.TrimSpace(c.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if strings.TrimSpace(c.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	validateEmail(errs, c.Email)
	switch {
	case c.Password == "":
		errs["password"] = "Password is required"
	case len(c.Password) < minPasswordLen:
		errs["password"] = "Password must be at least 8 characters"
	}
	if c.ConfirmPassword != c.Password {
		errs["confirmPassword"] = "Passwords do not match"
	}

	f.errors = errs
	return len(errs) == 0
}

func (f *Flow) validateCategoryStep() bool {
	d := f.draft
	errs := map[string]string{}

	switch {
	case d.CategoryID == "":
		errs["categoryId"] = "Please select a service"
	case f.findCategory(d.CategoryID) == nil:
		errs["categoryId"] = "Please select an available service"
	}

	switch {
	case d.Date == nil:
		errs["date"] = "Please select a date"
	case d.Date.Before(truncateDay(f.deps.Now(), f.deps.Location)):
		errs["date"] = "Date cannot be in the past"
	}

	switch {
	case d.Time == "":
		errs["time"] = "Please select a time"
	case !IsSlot(d.Time):
		errs["time"] = "Please select one of the available times"
	}

	f.errors = errs
	return len(errs) == 0
}

func validateEmail(errs map[string]string, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required"
	case !utils.IsValidEmail(email):
		errs["email"] = "Please enter a valid email address"
	}
}
