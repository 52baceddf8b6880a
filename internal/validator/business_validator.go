package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
	"github.com/go-playground/validator/v10"
)

// DateBuckets are the accepted history date filters, including the short
// aliases older clients send.
var DateBuckets = []string{"all", "today", "last-7-days", "last-30-days", "week", "month"}

func (v *Validator) registerBusinessRules() {
	v.validate.RegisterValidation("notblank", validateNotBlank)
	v.validate.RegisterValidation("date_bucket", validateDateBucket)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateDateBucket(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, bucket := range DateBuckets {
		if value == bucket {
			return true
		}
	}
	return false
}

// ValidateCreateTeacher checks an inline or management teacher creation
func (v *Validator) ValidateCreateTeacher(req *models.CreateTeacherRequest) error {
	return v.Validate(req)
}

// ValidateCreateStudent checks an inline or management student creation
func (v *Validator) ValidateCreateStudent(req *models.CreateStudentRequest) error {
	return v.Validate(req)
}

// submissionFields is the order the evaluation form shows its fields in.
var submissionFields = []struct {
	name    string
	message string
}{
	{"MaxMarks", "Please enter maximum marks"},
	{"TeacherID", "Please select a teacher"},
	{"StudentID", "Please select a student"},
	{"ModelAnswerText", "Please enter model answer"},
}

// ValidateEvaluationRequest checks a submission bundle before it goes upstream
// and reports only the first failing field, in form order. The student file is
// checked first because struct tags cannot see it.
func (v *Validator) ValidateEvaluationRequest(req *models.EvaluationRequest) error {
	if !req.StudentFile.Present() {
		return ValidationErrors{{Field: "student_file", Message: "Please upload a student answer file", Rule: "required"}}
	}
	for _, f := range submissionFields {
		err := v.validate.StructPartial(req, f.name)
		if err == nil {
			continue
		}
		errs := ToValidationErrors(err)
		if len(errs) == 0 {
			return fmt.Errorf("validation: %w", err)
		}
		errs[0].Message = f.message
		return errs[:1]
	}
	return nil
}
