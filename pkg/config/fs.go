package config

import "github.com/spf13/afero"

// fs is swapped for an afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()
