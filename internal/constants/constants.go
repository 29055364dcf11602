package constants

import "os"

// Environment variables consumed by the hooks.
const (
	// EnvPluginRoot points at the plugin checkout (templates, mounted-files).
	EnvPluginRoot = "MARS_PLUGIN_ROOT"

	// EnvRepoRoot points at the repo checkout containing the dev environment.
	EnvRepoRoot = "MARS_REPO_ROOT"

	// EnvHostUID is the UID of the host user the container maps onto.
	EnvHostUID = "MARS_HOST_UID"

	// EnvHostSubGID is the start of the host user's subordinate GID range.
	EnvHostSubGID = "MARS_HOST_SUBGID"

	// EnvSharedGroup overrides the shared-access group name.
	EnvSharedGroup = "MARS_SHARED_GROUP"

	// EnvCustomVolumes enables the custom volume sync ("true"/"false").
	EnvCustomVolumes = "MARS_CUSTOM_VOLUMES"
)

// Plugin layout constants
const (
	// TemplateRelPath is the override template, relative to the plugin root.
	TemplateRelPath = "templates/docker-compose.override.yml.template"

	// OverrideRelPath is the generated override, relative to the repo root.
	OverrideRelPath = "mars-dev/dev-environment/docker-compose.override.yml"

	// MountedFilesDir is the auto-mount source tree, relative to the plugin root.
	MountedFilesDir = "mounted-files"

	// ManifestRelPath is the generated symlink manifest, relative to the plugin root.
	ManifestRelPath = "generated/symlinks.yml"

	// PluginConfigFile is the optional static configuration, relative to the plugin root.
	PluginConfigFile = "plugin.yaml"
)

// Container-side constants
const (
	// DefaultSharedGroup is the group granted access to shared mounts.
	DefaultSharedGroup = "mars-shared"

	// DefaultContainerName is the dev container's name, used by status checks.
	DefaultContainerName = "mars-dev"

	// DefaultSharedMount is the shared directory whose group access gets
	// fixed at container startup.
	DefaultSharedMount = "/mnt/shared"

	// EtcGroupPath is the group database edited when ensuring the shared group.
	EtcGroupPath = "/etc/group"
)

// File permissions
const (
	// DirPermissions is the default permission mode for created directories.
	DirPermissions os.FileMode = 0755

	// ManifestPermissions is the permission mode for generated manifests.
	ManifestPermissions os.FileMode = 0644

	// GroupFilePermissions is the permission mode for the group database.
	GroupFilePermissions os.FileMode = 0644
)
