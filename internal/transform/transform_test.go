package transform

import (
	"testing"

	"github.com/h2non/bimg"
	"github.com/stretchr/testify/assert"
)

func TestBimgType(t *testing.T) {
	typ, err := bimgType("")
	assert.NoError(t, err)
	assert.Equal(t, bimg.JPEG, typ)

	typ, err = bimgType(FormatWebP)
	assert.NoError(t, err)
	assert.Equal(t, bimg.WEBP, typ)

	_, err = bimgType("gif")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType(FormatJPEG))
	assert.Equal(t, "image/jpeg", ContentType(""))
	assert.Equal(t, "image/webp", ContentType(FormatWebP))
}
