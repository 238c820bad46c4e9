package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"Go 1.21   Released", "go-121-released"},
		{"  leading and trailing  ", "-leading-and-trailing-"},
		{"snake_case stays", "snake_case-stays"},
		{"Café au lait", "caf-au-lait"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.title), "title %q", c.title)
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	title := "Some Fairly Long Post Title, With Punctuation!"
	assert.Equal(t, Slugify(title), Slugify(title))
}
