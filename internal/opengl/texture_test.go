package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"showroom/scene"
)

func TestTextureSetReleasesEveryUpload(t *testing.T) {
	paint := &scene.Texture{Name: "paint", GLID: 3}
	tyre := &scene.Texture{Name: "tyre", GLID: 7}

	set := make(textureSet)
	set.add(paint)
	set.add(tyre)
	set.add(paint)

	var freed []*scene.Texture
	set.release(func(tex *scene.Texture) {
		freed = append(freed, tex)
		tex.GLID = 0
	})

	assert.ElementsMatch(t, []*scene.Texture{paint, tyre}, freed)
	assert.Zero(t, paint.GLID)
	assert.Zero(t, tyre.GLID)
	assert.Empty(t, set)

	set.release(func(*scene.Texture) { t.Fatal("released twice") })
}

func TestFogUsesViewDepth(t *testing.T) {
	assert.Contains(t, vertSrc, "fragViewDepth     = -(view * worldPos).z;")
	assert.Contains(t, fragSrc, "smoothstep(fogNear, fogFar, fragViewDepth)")
}
