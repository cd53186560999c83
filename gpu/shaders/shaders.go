package shaders

import (
	_ "embed"
)

//go:embed crowd.wgsl
var CrowdWGSL string
