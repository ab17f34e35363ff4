package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScanInput struct {
	ScanType string `validate:"required,scan_type"`
	Status   string `validate:"omitempty,finding_status"`
	Provider string `validate:"omitempty,vcs_provider"`
	Name     string `validate:"required,min=3"`
}

func TestValidator_Validate(t *testing.T) {
	v := New()

	t.Run("valid input", func(t *testing.T) {
		err := v.Validate(testScanInput{
			ScanType: "BASE",
			Status:   "TRUE_POSITIVE",
			Provider: "GITHUB_PUBLIC",
			Name:     "demo-repo",
		})

		assert.NoError(t, err)
	})

	t.Run("invalid scan type", func(t *testing.T) {
		err := v.Validate(testScanInput{ScanType: "FULL", Name: "demo"})

		require.Error(t, err)
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "scan_type", verrs[0].Field)
		assert.Contains(t, verrs[0].Message, "must be one of")
	})

	t.Run("invalid finding status", func(t *testing.T) {
		err := v.Validate(testScanInput{ScanType: "BASE", Status: "MAYBE", Name: "demo"})

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "status", verrs[0].Field)
	})

	t.Run("invalid vcs provider", func(t *testing.T) {
		err := v.Validate(testScanInput{ScanType: "BASE", Provider: "SVN", Name: "demo"})

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "provider", verrs[0].Field)
	})

	t.Run("multiple failures reported per field", func(t *testing.T) {
		err := v.Validate(testScanInput{ScanType: "", Name: "ab"})

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
	})

	t.Run("required message", func(t *testing.T) {
		err := v.Validate(testScanInput{Name: "demo"})

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "is required", verrs[0].Message)
	})
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "scan_type", Message: "must be one of: BASE, INCREMENTAL"},
	}

	assert.Equal(t, "name: is required; scan_type: must be one of: BASE, INCREMENTAL", errs.Error())
	assert.Empty(t, ValidationErrors{}.Error())
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ScanType", "scan_type"},
		{"VCSInstanceName", "v_c_s_instance_name"},
		{"Name", "name"},
		{"lowercase", "lowercase"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, toSnakeCase(tt.in))
	}
}
