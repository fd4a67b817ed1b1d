package texture

// TextureBuilderOption is a functional option for configuring a Texture via NewTexture.
type TextureBuilderOption func(*texture)

// WithLabel is an option builder that sets the debug label of the Texture.
// The label is reused for GPU allocations made from the texture.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - TextureBuilderOption: a function that applies the label option to a texture
func WithLabel(label string) TextureBuilderOption {
	return func(t *texture) {
		t.label = label
	}
}

// WithGPUResource is an option builder that attaches an existing GPU allocation to the Texture.
//
// Parameters:
//   - r: the GPU allocation
//
// Returns:
//   - TextureBuilderOption: a function that applies the GPU resource option to a texture
func WithGPUResource(r GPUResource) TextureBuilderOption {
	return func(t *texture) {
		t.gpu = r
	}
}
