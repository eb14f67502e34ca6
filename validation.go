package yamdb

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// ReservedUsername is the path alias for the authenticated caller and can
	// never be registered.
	ReservedUsername = "me"

	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 150
	MaxBioLength      = 1000
	MaxSlugLength     = 50
	MaxCatalogName    = 256
	MinScore          = 1
	MaxScore          = 10
)

var (
	// usernamePattern mirrors ^[\w.@+-]+$ with Unicode word characters.
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var errReservedUsername = errors.New(`username "me" is reserved`)

func notReserved(value interface{}) error {
	s, _ := value.(string)
	if s == ReservedUsername {
		return errReservedUsername
	}
	return nil
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(1, MaxUsernameLength),
		validation.Match(usernamePattern).Error("may contain only letters, digits and @/./+/-/_"),
		validation.By(notReserved),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(1, MaxEmailLength),
		is.Email,
	}
}

// ValidateUsername checks the pattern, length and reserved name rules.
func ValidateUsername(username string) error {
	return toValidationError(validation.Errors{
		"username": validation.Validate(username, usernameRules()...),
	}.Filter())
}

// ValidateSignUp validates the sign-up payload. Every entry point that
// accepts a username or email goes through the same rule set.
func ValidateSignUp(username, email string) error {
	return toValidationError(validation.Errors{
		"username": validation.Validate(username, usernameRules()...),
		"email":    validation.Validate(email, emailRules()...),
	}.Filter())
}

// ValidateTokenRequest checks that both token exchange fields are present.
func ValidateTokenRequest(username, code string) error {
	return toValidationError(validation.Errors{
		"username":          validation.Validate(username, validation.Required),
		"confirmation_code": validation.Validate(code, validation.Required),
	}.Filter())
}

// Validate runs the profile rules over a user record.
func (u *User) Validate() error {
	return toValidationError(validation.ValidateStruct(u,
		validation.Field(&u.Username, usernameRules()...),
		validation.Field(&u.Email, emailRules()...),
		validation.Field(&u.FirstName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&u.LastName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&u.Bio, validation.RuneLength(0, MaxBioLength)),
		validation.Field(&u.Role, validation.By(validRole)),
	))
}

func validRole(value interface{}) error {
	role, _ := value.(UserRole)
	if role == "" || role.IsValid() {
		return nil
	}
	return errors.New("must be one of user, moderator, admin")
}

// Validate checks name and slug of a category.
func (c *Category) Validate() error {
	return toValidationError(validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.RuneLength(1, MaxCatalogName)),
		validation.Field(&c.Slug, validation.Required, validation.RuneLength(1, MaxSlugLength), validation.Match(slugPattern)),
	))
}

// Validate checks name and slug of a genre.
func (g *Genre) Validate() error {
	return toValidationError(validation.ValidateStruct(g,
		validation.Field(&g.Name, validation.Required, validation.RuneLength(1, MaxCatalogName)),
		validation.Field(&g.Slug, validation.Required, validation.RuneLength(1, MaxSlugLength), validation.Match(slugPattern)),
	))
}

// ValidateTitle checks the writable title fields against the given clock.
func ValidateTitle(name string, year int, now time.Time) error {
	return toValidationError(validation.Errors{
		"name": validation.Validate(name, validation.Required, validation.RuneLength(1, MaxCatalogName)),
		"year": validation.Validate(year, validation.Required, validation.Max(now.Year()).Error("cannot be in the future")),
	}.Filter())
}

// ValidateReview checks text and score. Score must be an integer in [1,10].
func ValidateReview(text string, score int) error {
	return toValidationError(validation.Errors{
		"text":  validation.Validate(text, validation.Required),
		"score": validation.Validate(score, validation.By(scoreInRange)),
	}.Filter())
}

var errScoreRange = errors.New("must be between 1 and 10")

// scoreInRange does not skip the zero value, unlike validation.Min.
func scoreInRange(value interface{}) error {
	score, ok := value.(int)
	if !ok || score < MinScore || score > MaxScore {
		return errScoreRange
	}
	return nil
}

// ValidateComment checks comment text.
func ValidateComment(text string) error {
	return toValidationError(validation.Errors{
		"text": validation.Validate(text, validation.Required),
	}.Filter())
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	fields := map[string]string{}
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				fields[field] = fieldErr.Error()
			}
		}
	} else {
		fields["non_field_errors"] = err.Error()
	}

	return ValidationError(fields)
}
