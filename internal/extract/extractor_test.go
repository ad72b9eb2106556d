package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sourceURL = "https://example.edu/staff"

func TestExtractFromContactCards(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<div class="staff-member">
  <h3 class="name">Jane Doe</h3>
  <p class="designation">Associate Professor</p>
  <a href="mailto:jane.doe@example.edu">Email</a>
  <a href="tel:+1-555-123-4567">Call</a>
</div>
<div class="staff-member">
  <h3 class="name">John Roe</h3>
  <p class="designation">Senior Lecturer</p>
  <span>john.roe@example.edu</span>
</div>
</body></html>`

	e := New(zap.NewNop())
	contacts := e.Extract(html, sourceURL)
	require.Len(t, contacts, 2)

	require.Equal(t, "jane.doe@example.edu", contacts[0].Email)
	require.Equal(t, "Jane Doe", contacts[0].Name)
	require.Equal(t, "Associate Professor", contacts[0].Designation)
	require.Equal(t, "+1-555-123-4567", contacts[0].Phone)
	require.Equal(t, "card", contacts[0].Method)
	require.Equal(t, sourceURL, contacts[0].SourceURL)

	require.Equal(t, "john.roe@example.edu", contacts[1].Email)
	require.Equal(t, "John Roe", contacts[1].Name)
}

func TestExtractFromMailtoLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<section>
  <h2>Alice Brown</h2>
  <span class="job-title">Programme Coordinator</span>
  <a href="mailto:alice.brown@example.edu?subject=hello">write to Alice</a>
  <a href="tel:+6512345678">phone</a>
</section>
</body></html>`

	e := New(zap.NewNop())
	contacts := e.Extract(html, sourceURL)
	require.Len(t, contacts, 1)

	c := contacts[0]
	require.Equal(t, "alice.brown@example.edu", c.Email)
	require.Equal(t, "Alice Brown", c.Name)
	require.Equal(t, "Programme Coordinator", c.Designation)
	require.Equal(t, "+6512345678", c.Phone)
	require.Equal(t, "mailto", c.Method)
}

func TestExtractFromPlainText(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<p>For admissions write to admissions@example.edu.</p>
<p>The dean's office is reachable at dean.office@example.edu or admissions@example.edu.</p>
</body></html>`

	e := New(zap.NewNop())
	contacts := e.Extract(html, sourceURL)
	require.Len(t, contacts, 2)
	require.Equal(t, "text", contacts[0].Method)

	emails := []string{contacts[0].Email, contacts[1].Email}
	require.ElementsMatch(t, []string{"admissions@example.edu", "dean.office@example.edu"}, emails)
}

func TestExtractEmptyAndBrokenDocuments(t *testing.T) {
	t.Parallel()

	e := New(zap.NewNop())
	require.Empty(t, e.Extract("", sourceURL))
	require.Empty(t, e.Extract("<html><body><p>no emails here</p></body></html>", sourceURL))
	require.Empty(t, e.Extract("<<<<not html>>>>", sourceURL))
}

func TestNameFromEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{email: "jane.doe@example.edu", want: "Jane Doe"},
		{email: "john_smith@example.edu", want: "John Smith"},
		{email: "mary.anne.lee@example.edu", want: "Mary Anne Lee"},
		{email: "admissions@example.edu", want: ""},
		{email: "info123.desk@example.edu", want: ""},
		{email: "a.b@example.edu", want: ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, nameFromEmail(tt.email), "email %s", tt.email)
	}
}

func TestLooksLikeName(t *testing.T) {
	t.Parallel()

	require.True(t, looksLikeName("Jane Doe"))
	require.True(t, looksLikeName("Dr. Mary Anne Lee"))
	require.False(t, looksLikeName("Click here for more"))
	require.False(t, looksLikeName("Email"))
	require.False(t, looksLikeName("Contact the department office"))
	require.False(t, looksLikeName("one two three four five six"))
}

func TestLooksLikeDesignation(t *testing.T) {
	t.Parallel()

	require.True(t, looksLikeDesignation("Associate Professor"))
	require.True(t, looksLikeDesignation("Head of Department"))
	require.False(t, looksLikeDesignation("Prof"))
	require.False(t, looksLikeDesignation("Welcome to our website"))
}

func TestCleanFieldRules(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<div class="contact-card">
  <h3 class="name">  AB  </h3>
  <span>short.phone 12345</span>
  <a href="mailto:x.y@example.edu">mail</a>
</div>
</body></html>`

	e := New(zap.NewNop())
	contacts := e.Extract(html, sourceURL)
	require.Len(t, contacts, 1)
	// Two-character names and sub-seven-digit phones are dropped.
	require.Empty(t, contacts[0].Name)
	require.Empty(t, contacts[0].Phone)
	require.Equal(t, "x.y@example.edu", contacts[0].Email)
}
