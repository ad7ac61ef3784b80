// Package confloader layers configuration from defaults, a YAML file and
// environment variables using koanf, and watches the file with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Values merged with LoadMap (explicit command-line flags)
//  2. Environment variables (TSXLOCK_SECTION__KEY)
//  3. The YAML configuration file
//  4. Defaults held by the target struct
package confloader
