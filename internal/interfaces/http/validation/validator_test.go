package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "silkmaker-backend/pkg/errors"
)

type sample struct {
	Name  string  `json:"name" validate:"required,max=5"`
	Type  string  `json:"type" validate:"required,nodetype"`
	Kind  string  `json:"kind" validate:"omitempty,assettype"`
	Title *string `json:"title" validate:"omitempty,min=1"`
	Size  int64   `json:"size" validate:"min=0"`
}

func TestStruct(t *testing.T) {
	empty := ""
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{Name: "ok", Type: "start", Kind: "gif"}},
		{name: "missing name", in: sample{Type: "story"}, wantErr: "name is required"},
		{name: "long name", in: sample{Name: "toolong", Type: "story"}, wantErr: "name must be at most 5 characters"},
		{name: "bad node type", in: sample{Name: "a", Type: "nope"}, wantErr: "type must be a known node type"},
		{name: "bad asset type", in: sample{Name: "a", Type: "end", Kind: "pdf"}, wantErr: "kind must be one of: image audio video gif"},
		{name: "empty title pointer", in: sample{Name: "a", Type: "end", Title: &empty}, wantErr: "title must be at least 1 characters"},
		{name: "negative size", in: sample{Name: "a", Type: "end", Size: -1}, wantErr: "size must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().Struct(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, appErrors.IsValidation(err))
			assert.Equal(t, tt.wantErr, appErrors.MessageOf(err))
		})
	}
}

func TestStructJoinsMessages(t *testing.T) {
	err := New().Struct(sample{})
	assert.Equal(t, "name is required; type is required", appErrors.MessageOf(err))
}
