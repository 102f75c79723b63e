package models

import (
	"fmt"
	"strings"
)

// PromptRequest asks for a personalized generation prompt.
type PromptRequest struct {
	Name     string   `json:"name"`
	Wishes   []string `json:"wishes"`
	Retrieve *bool    `json:"retrieve,omitempty"`
}

// Validate trims the request and checks that a name and at least one wish remain.
func (r *PromptRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	wishes := make([]string, 0, len(r.Wishes))
	for _, w := range r.Wishes {
		if w = strings.TrimSpace(w); w != "" {
			wishes = append(wishes, w)
		}
	}
	if len(wishes) == 0 {
		return fmt.Errorf("wishes must contain at least one non-empty item")
	}
	r.Wishes = wishes
	if r.Retrieve == nil {
		t := true
		r.Retrieve = &t
	}
	return nil
}
