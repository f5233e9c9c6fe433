package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, "Author", r.Save("Writer", "Author"))
	assert.Equal(t, "Post", r.Save("Post", ""))

	assert.Equal(t, "Author", r.ToEffective("Writer"))
	assert.Equal(t, "Writer", r.ToLogical("Author"))

	// Unmapped names degrade to identity in both directions.
	assert.Equal(t, "Post", r.ToEffective("Post"))
	assert.Equal(t, "Post", r.ToLogical("Post"))
	assert.Equal(t, "Unknown", r.ToLogical("Unknown"))
}
