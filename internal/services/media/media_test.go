package media

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostObjectKey_Layout(t *testing.T) {
	key := PostObjectKey("post-1", 2, "image/png")

	assert.Regexp(t, regexp.MustCompile(`^posts/post-1/media_2_[0-9a-v]{20}\.png$`), key)
	assert.NotEqual(t, key, PostObjectKey("post-1", 2, "image/png"))
}

func TestPostIDFromKey(t *testing.T) {
	id, ok := PostIDFromKey("posts/abc/media_0_x.jpg")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = PostIDFromKey("users/abc/media/x.jpg")
	assert.False(t, ok)

	_, ok = PostIDFromKey("posts/")
	assert.False(t, ok)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "jpg", Extension("image/jpeg"))
	assert.Equal(t, "mov", Extension("video/quicktime"))
	assert.Equal(t, "bin", Extension("application/x-unknown-thing"))
}

func TestValidateContentType(t *testing.T) {
	allowed := []string{"image/jpeg", "video/mp4"}

	assert.True(t, ValidateContentType(allowed, "video/mp4"))
	assert.False(t, ValidateContentType(allowed, "application/pdf"))
}
