package demo_configs

import (
	"embed"
)

// FS 內建的示範 preset（平的目錄，只有 yaml）。
//
//go:embed *.yaml
var FS embed.FS
