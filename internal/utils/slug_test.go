package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intro to Physics", "intro-to-physics"},
		{"  Intro   to  Physics  ", "intro-to-physics"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"A-Level Maths: Part 2!", "a-level-maths-part-2"},
		{"snake_case_title", "snake_case_title"},
		{"Don't Stop", "dont-stop"},
		{"Grade_10 Maths", "grade_10-maths"},
		{"Physics (A/L)", "physics-al"},
		{"_Private - Lesson_", "private-lesson"},
		{"Ⅻ Tutorial", "xii-tutorial"},
		{"---", ""},
		{"සිංහල Grade 5", "grade-5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "intro-to-physics", SlugCandidate("intro-to-physics", 0))
	assert.Equal(t, "intro-to-physics-1", SlugCandidate("intro-to-physics", 1))
	assert.Equal(t, "intro-to-physics-12", SlugCandidate("intro-to-physics", 12))
}
