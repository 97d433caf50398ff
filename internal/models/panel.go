package models

// Panel is a static informational section shown in a modal.
type Panel struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Icon    string `json:"icon,omitempty" yaml:"icon"`
	Content string `json:"content" yaml:"content"`
}
