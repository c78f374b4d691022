package simulation

import _ "embed"

//go:embed shaders/clear_forces.wgsl
var shaderClearForces string

//go:embed shaders/springs.wgsl
var shaderSprings string

//go:embed shaders/integrate.wgsl
var shaderIntegrate string
