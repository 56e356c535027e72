package forensicstore

import "github.com/forensicanalysis/forensicstore/internal/config"

// testCfg is the [container] config every test in this package exercises
// Create/Open with: discriminator "type", strict mode on, matching
// config.Default().Container.
func testCfg() config.ContainerConfig {
	return config.Default().Container
}
