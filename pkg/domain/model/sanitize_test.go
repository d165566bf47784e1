package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Golden Retriever", want: "Golden Retriever"},
		{name: "symbols replaced one for one", input: "C++ / Go?", want: "C__ _ Go_"},
		{name: "underscore kept", input: "snake_case", want: "snake_case"},
		{name: "hyphen replaced", input: "t-rex", want: "t_rex"},
		{name: "path traversal neutralised", input: "../etc", want: "___etc"},
		{name: "unicode letters kept", input: "Café 東京", want: "Café 東京"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, model.SanitizeSegment(tt.input), tt.want)
		})
	}
}
