// Package opengl draws renderer frames with an OpenGL 4.1 core context.
package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"showroom/core"
	"showroom/renderer"
	"showroom/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// Backend implements renderer.Backend. All methods must run on the thread
// that owns the GL context.
type Backend struct {
	program    uint32
	shadowProg uint32
	log        *slog.Logger

	mvpLoc        int32
	modelLoc      int32
	viewLoc       int32
	lightSpaceLoc int32

	lightCountLoc    int32
	lightDirLoc      [maxLights]int32
	lightRadianceLoc [maxLights]int32
	shadowLightLoc   int32

	hemiSkyLoc       int32
	hemiGroundLoc    int32
	hemiIntensityLoc int32
	cameraPosLoc     int32

	matBaseColorLoc    int32
	matOpacityLoc      int32
	matRoughnessLoc    int32
	matMetalnessLoc    int32
	matEnvIntensityLoc int32
	baseColorTexLoc    int32
	hasTextureLoc      int32

	shadowMapLoc     int32
	receiveShadowLoc int32
	shadowTexelLoc   int32

	fogEnabledLoc int32
	fogColorLoc   int32
	fogNearLoc    int32
	fogFarLoc     int32
	exposureLoc   int32

	shadowLightMVPLoc int32

	shadowMap *ShadowMap

	viewportW int32
	viewportH int32

	gpuMeshes   map[*scene.Mesh]*GPUMesh
	textures    textureSet
	badTextures map[*scene.Texture]bool
}

var _ renderer.Backend = (*Backend)(nil)

// NewBackend initialises OpenGL and compiles the shaders. The window's GL
// context must be current.
func NewBackend(log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log = log.With("component", "opengl")
	log.Info("OpenGL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}
	shadowProg, err := newProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("depth shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)

	loc := func(name string) int32 { return gl.GetUniformLocation(prog, gl.Str(name+"\x00")) }
	b := &Backend{
		program:    prog,
		shadowProg: shadowProg,
		log:        log,

		mvpLoc:        loc("mvp"),
		modelLoc:      loc("model"),
		viewLoc:       loc("view"),
		lightSpaceLoc: loc("lightSpace"),

		lightCountLoc:  loc("lightCount"),
		shadowLightLoc: loc("shadowLight"),

		hemiSkyLoc:       loc("hemiSky"),
		hemiGroundLoc:    loc("hemiGround"),
		hemiIntensityLoc: loc("hemiIntensity"),
		cameraPosLoc:     loc("cameraPos"),

		matBaseColorLoc:    loc("matBaseColor"),
		matOpacityLoc:      loc("matOpacity"),
		matRoughnessLoc:    loc("matRoughness"),
		matMetalnessLoc:    loc("matMetalness"),
		matEnvIntensityLoc: loc("matEnvIntensity"),
		baseColorTexLoc:    loc("baseColorTex"),
		hasTextureLoc:      loc("hasTexture"),

		shadowMapLoc:     loc("shadowMap"),
		receiveShadowLoc: loc("receiveShadow"),
		shadowTexelLoc:   loc("shadowTexel"),

		fogEnabledLoc: loc("fogEnabled"),
		fogColorLoc:   loc("fogColor"),
		fogNearLoc:    loc("fogNear"),
		fogFarLoc:     loc("fogFar"),
		exposureLoc:   loc("exposure"),

		shadowLightMVPLoc: gl.GetUniformLocation(shadowProg, gl.Str("lightMVP\x00")),

		gpuMeshes:   make(map[*scene.Mesh]*GPUMesh),
		textures:    make(textureSet),
		badTextures: make(map[*scene.Texture]bool),
	}
	for i := 0; i < maxLights; i++ {
		b.lightDirLoc[i] = loc(fmt.Sprintf("lightDir[%d]", i))
		b.lightRadianceLoc[i] = loc(fmt.Sprintf("lightRadiance[%d]", i))
	}

	// Texture units: base colour = 0, shadow map = 1
	gl.UseProgram(prog)
	gl.Uniform1i(b.baseColorTexLoc, 0)
	gl.Uniform1i(b.shadowMapLoc, 1)
	return b, nil
}

// SetViewport resizes the GL viewport and remembers it for restoring after
// the shadow pass.
func (b *Backend) SetViewport(width, height int) {
	b.viewportW = int32(width)
	b.viewportH = int32(height)
	gl.Viewport(0, 0, b.viewportW, b.viewportH)
}

// Draw renders f: shadow depth pass, opaque pass, then blended transparent
// pass back to front.
func (b *Backend) Draw(f *renderer.Frame) error {
	hasShadows := false
	if f.Shadow != nil {
		if err := b.ensureShadowMap(f.Shadow.MapSize); err != nil {
			return err
		}
		b.shadowPass(f.Shadow)
		hasShadows = true
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, b.viewportW, b.viewportH)
	bg := f.Background
	gl.ClearColor(bg.R, bg.G, bg.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(b.program)
	b.setFrameUniforms(f, hasShadows)
	viewProj := f.Projection.Mul4(f.View)

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for i := range f.Opaque {
		b.drawItem(&f.Opaque[i], viewProj)
	}

	if len(f.Transparent) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for i := range f.Transparent {
			b.drawItem(&f.Transparent[i], viewProj)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}
	return nil
}

func (b *Backend) setFrameUniforms(f *renderer.Frame, hasShadows bool) {
	cp := f.CameraPos
	gl.Uniform3f(b.cameraPosLoc, cp[0], cp[1], cp[2])
	gl.UniformMatrix4fv(b.viewLoc, 1, false, &f.View[0])
	gl.Uniform1f(b.exposureLoc, f.Exposure)

	if h := f.Hemisphere; h != nil {
		gl.Uniform3f(b.hemiSkyLoc, h.Sky.R, h.Sky.G, h.Sky.B)
		gl.Uniform3f(b.hemiGroundLoc, h.Ground.R, h.Ground.G, h.Ground.B)
		gl.Uniform1f(b.hemiIntensityLoc, h.Intensity)
	} else {
		gl.Uniform1f(b.hemiIntensityLoc, 0)
	}

	shadowIdx := int32(-1)
	n := 0
	for _, l := range f.Lights {
		if l == nil || n >= maxLights {
			continue
		}
		d := l.Direction()
		rad := l.Color.Vec3().Mul(l.Intensity)
		gl.Uniform3f(b.lightDirLoc[n], d[0], d[1], d[2])
		gl.Uniform3f(b.lightRadianceLoc[n], rad[0], rad[1], rad[2])
		if hasShadows && l == f.Shadow.Light {
			shadowIdx = int32(n)
		}
		n++
	}
	gl.Uniform1i(b.lightCountLoc, int32(n))
	gl.Uniform1i(b.shadowLightLoc, shadowIdx)

	if hasShadows {
		ls := f.Shadow.LightSpace
		gl.UniformMatrix4fv(b.lightSpaceLoc, 1, false, &ls[0])
		gl.Uniform1f(b.shadowTexelLoc, 1/float32(b.shadowMap.Size))
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, b.shadowMap.DepthTex)
	} else {
		ident := mgl32.Ident4()
		gl.UniformMatrix4fv(b.lightSpaceLoc, 1, false, &ident[0])
	}

	if fog := f.Fog; fog != nil {
		gl.Uniform1i(b.fogEnabledLoc, 1)
		gl.Uniform3f(b.fogColorLoc, fog.Color.R, fog.Color.G, fog.Color.B)
		gl.Uniform1f(b.fogNearLoc, fog.Near)
		gl.Uniform1f(b.fogFarLoc, fog.Far)
	} else {
		gl.Uniform1i(b.fogEnabledLoc, 0)
	}
}

func (b *Backend) drawItem(it *renderer.DrawItem, viewProj mgl32.Mat4) {
	gpu := b.ensureUploaded(it.Mesh)
	if gpu == nil {
		return
	}
	mvp := viewProj.Mul4(it.Model)
	gl.UniformMatrix4fv(b.mvpLoc, 1, false, &mvp[0])
	gl.UniformMatrix4fv(b.modelLoc, 1, false, &it.Model[0])
	setBool(b.receiveShadowLoc, it.Node.ReceiveShadow)
	b.applyMaterial(it.Material)

	if it.Material.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	drawGPU(gpu, len(it.Mesh.Vertices))
}

func (b *Backend) applyMaterial(mat *scene.Material) {
	c := mat.BaseColor
	gl.Uniform3f(b.matBaseColorLoc, c.R, c.G, c.B)
	opacity := float32(1)
	if mat.IsTransparent() {
		opacity = mat.Opacity
	}
	gl.Uniform1f(b.matOpacityLoc, opacity)
	gl.Uniform1f(b.matRoughnessLoc, mat.Roughness)
	gl.Uniform1f(b.matMetalnessLoc, mat.Metalness)
	gl.Uniform1f(b.matEnvIntensityLoc, mat.EnvMapIntensity)

	if tex := b.texture(mat.BaseColorTexture); tex != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.Uniform1i(b.hasTextureLoc, 1)
	} else {
		gl.Uniform1i(b.hasTextureLoc, 0)
	}
}

// texture returns the GL name of tex, uploading it on first use.
func (b *Backend) texture(tex *scene.Texture) uint32 {
	if tex == nil || b.badTextures[tex] {
		return 0
	}
	if tex.GLID == 0 {
		if err := UploadTexture(tex); err != nil {
			b.log.Warn("texture upload failed", "texture", tex.Name, "err", err)
			b.badTextures[tex] = true
			return 0
		}
		b.textures.add(tex)
	}
	return tex.GLID
}

func (b *Backend) ensureShadowMap(size int) error {
	if b.shadowMap != nil && int(b.shadowMap.Size) == size {
		return nil
	}
	if b.shadowMap != nil {
		b.shadowMap.Destroy()
		b.shadowMap = nil
	}
	sm, err := NewShadowMap(size)
	if err != nil {
		return fmt.Errorf("shadows: %w", err)
	}
	b.shadowMap = sm
	return nil
}

func (b *Backend) shadowPass(sp *renderer.ShadowPass) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, b.shadowMap.FBO)
	gl.Viewport(0, 0, b.shadowMap.Size, b.shadowMap.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(b.shadowProg)
	gl.Disable(gl.CULL_FACE)

	for i := range sp.Casters {
		it := &sp.Casters[i]
		gpu := b.ensureUploaded(it.Mesh)
		if gpu == nil {
			continue
		}
		lightMVP := sp.LightSpace.Mul4(it.Model)
		gl.UniformMatrix4fv(b.shadowLightMVPLoc, 1, false, &lightMVP[0])
		drawGPU(gpu, len(it.Mesh.Vertices))
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, b.viewportW, b.viewportH)
}

func drawGPU(gpu *GPUMesh, vertexCount int) {
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
	}
	gl.BindVertexArray(0)
}

func setBool(loc int32, v bool) {
	if v {
		gl.Uniform1i(loc, 1)
	} else {
		gl.Uniform1i(loc, 0)
	}
}

// ensureUploaded creates the VAO for mesh on first use.
func (b *Backend) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := b.gpuMeshes[mesh]; ok {
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, unsafe.Offsetof(v.Position))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, unsafe.Offsetof(v.Normal))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, unsafe.Offsetof(v.UV))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	}
	gl.BindVertexArray(0)

	b.gpuMeshes[mesh] = gpu
	return gpu
}

// ReleaseMesh frees GPU buffers for the given mesh.
func (b *Backend) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := b.gpuMeshes[mesh]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(b.gpuMeshes, mesh)
}

// Destroy releases all GPU resources.
func (b *Backend) Destroy() {
	for mesh := range b.gpuMeshes {
		b.ReleaseMesh(mesh)
	}
	b.textures.release(DeleteTexture)
	if b.shadowMap != nil {
		b.shadowMap.Destroy()
	}
	gl.DeleteProgram(b.shadowProg)
	gl.DeleteProgram(b.program)
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
