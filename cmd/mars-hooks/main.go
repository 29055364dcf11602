package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joehays/mars-user-plugin/internal/automount"
	"github.com/joehays/mars-user-plugin/internal/config"
	"github.com/joehays/mars-user-plugin/internal/constants"
	"github.com/joehays/mars-user-plugin/internal/docker"
	"github.com/joehays/mars-user-plugin/internal/embedded"
	"github.com/joehays/mars-user-plugin/internal/logger"
	"github.com/joehays/mars-user-plugin/internal/paths"
	"github.com/joehays/mars-user-plugin/internal/platform"
	"github.com/joehays/mars-user-plugin/internal/state"
	"github.com/joehays/mars-user-plugin/internal/symlink"
	"github.com/joehays/mars-user-plugin/internal/sysbox"
	"github.com/joehays/mars-user-plugin/internal/templatesync"
	"github.com/joehays/mars-user-plugin/internal/terminal"
)

var version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mars-hooks",
		Short: "Lifecycle hooks for the mars-dev container volume plugin",
		Long: "Keeps the docker-compose override in sync with its template before the\n" +
			"container starts, and repairs symlinks and shared group access inside it afterwards.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newPreUpCmd(),
		newContainerStartupCmd(),
		newStatusCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// addRootFlags registers the plugin/repo root flags shared by most commands.
func addRootFlags(cmd *cobra.Command) {
	cmd.Flags().String("plugin-root", "", "Plugin checkout path (defaults to $"+constants.EnvPluginRoot+")")
	cmd.Flags().String("repo-root", "", "Repo checkout path (defaults to $"+constants.EnvRepoRoot+")")
}

// loadConfig builds the effective Config from environment, flags, and the
// optional plugin.yaml, plus the path resolver for the chosen roots.
func loadConfig(cmd *cobra.Command) (config.Config, *paths.Resolver, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}

	if v, err := cmd.Flags().GetString("plugin-root"); err == nil && v != "" {
		cfg.PluginRoot = v
	}
	if v, err := cmd.Flags().GetString("repo-root"); err == nil && v != "" {
		cfg.RepoRoot = v
	}

	resolver, err := paths.NewResolver(cfg.PluginRoot, cfg.RepoRoot)
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err = config.LoadFile(cfg, resolver.PluginConfig())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, resolver, nil
}

func newPreUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pre-up",
		Short: "Sync the override template and generate auto-mounts (host side)",
		RunE:  runPreUp,
	}
	addRootFlags(cmd)
	cmd.Flags().Bool("force", false, "Overwrite the override even when it is newer than the template")
	return cmd
}

func runPreUp(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("invalid force flag: %w", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	// Disabled means exactly that: no filesystem access at all, so bail out
	// before the roots are even validated.
	if !cfg.CustomVolumes {
		logger.Info("custom volumes disabled; nothing to do")
		return nil
	}

	if v, err := cmd.Flags().GetString("plugin-root"); err == nil && v != "" {
		cfg.PluginRoot = v
	}
	if v, err := cmd.Flags().GetString("repo-root"); err == nil && v != "" {
		cfg.RepoRoot = v
	}

	resolver, err := paths.NewResolver(cfg.PluginRoot, cfg.RepoRoot)
	if err != nil {
		return err
	}
	cfg, err = config.LoadFile(cfg, resolver.PluginConfig())
	if err != nil {
		return err
	}

	// Interactive runs get a chance to back out of clobbering manual edits;
	// scripted runs keep the flag's meaning.
	if force {
		ok, err := terminal.Confirm("Override may carry manual edits newer than the template. Overwrite?", true)
		if err != nil {
			return err
		}
		force = ok
	}

	outcome, err := templatesync.Sync(templatesync.Options{
		TemplatePath: resolver.Template(),
		OverridePath: resolver.Override(),
		Enabled:      cfg.CustomVolumes,
		Force:        force,
	})
	if err != nil {
		return err
	}

	switch outcome {
	case templatesync.Copied:
		entries, pairs, err := automount.Scan(resolver.MountedFiles())
		if err != nil {
			return err
		}
		if err := automount.AppendToOverride(resolver.Override(), entries); err != nil {
			return err
		}
		if err := automount.WriteManifest(resolver.Manifest(), pairs); err != nil {
			return err
		}

	case templatesync.SkippedNewer:
		// The override keeps its manual edits, but container-startup still
		// needs fresh symlink pairs.
		_, pairs, err := automount.Scan(resolver.MountedFiles())
		if err != nil {
			return err
		}
		if err := automount.WriteManifest(resolver.Manifest(), pairs); err != nil {
			return err
		}
	}

	return nil
}

func newContainerStartupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container-startup",
		Short: "Reconcile symlinks and fix shared group access (inside the container, as root)",
		RunE:  runContainerStartup,
	}
	cmd.Flags().String("plugin-root", "", "Plugin checkout path (defaults to $"+constants.EnvPluginRoot+")")
	cmd.Flags().String("shared-path", constants.DefaultSharedMount, "Shared directory to grant group access on")
	cmd.Flags().String("group", "", "Shared group name (defaults to $"+constants.EnvSharedGroup+" or "+constants.DefaultSharedGroup+")")
	cmd.Flags().Bool("skip-platform-check", false, "Skip the Linux/root precondition check (testing only)")
	return cmd
}

func runContainerStartup(cmd *cobra.Command, args []string) error {
	sharedPath, err := cmd.Flags().GetString("shared-path")
	if err != nil {
		return fmt.Errorf("invalid shared-path flag: %w", err)
	}
	groupName, err := cmd.Flags().GetString("group")
	if err != nil {
		return fmt.Errorf("invalid group flag: %w", err)
	}
	skipCheck, err := cmd.Flags().GetBool("skip-platform-check")
	if err != nil {
		return fmt.Errorf("invalid skip-platform-check flag: %w", err)
	}

	if !skipCheck {
		if err := platform.RequireContainerStage(); err != nil {
			return err
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if v, err := cmd.Flags().GetString("plugin-root"); err == nil && v != "" {
		cfg.PluginRoot = v
	}

	// The repo root lives on the host; container-side paths all hang off the
	// plugin root, which is bind-mounted into the container.
	resolver, err := paths.NewPluginResolver(cfg.PluginRoot)
	if err != nil {
		return err
	}
	cfg, err = config.LoadFile(cfg, resolver.PluginConfig())
	if err != nil {
		return err
	}
	if groupName != "" {
		cfg.SharedGroup = groupName
	}

	generated, err := automount.ReadManifest(resolver.Manifest())
	if err != nil {
		return err
	}
	pairs := append(cfg.Pairs, generated...)

	result, err := symlink.Reconcile(pairs)
	if err != nil {
		return err
	}
	fmt.Println(result)

	if cfg.HostSubGID == 0 {
		logger.Warn("%s not set; skipping shared group fix", constants.EnvHostSubGID)
		return nil
	}

	_, err = sysbox.FixGroupAccess(sysbox.Options{
		Path:       sharedPath,
		HostUID:    cfg.HostUID,
		HostSubGID: cfg.HostSubGID,
		GroupName:  cfg.SharedGroup,
	}, sysbox.NewOSOwnership())
	return err
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report template, override, symlink, and container state",
		RunE:  runStatus,
	}
	addRootFlags(cmd)
	cmd.Flags().String("container", constants.DefaultContainerName, "Dev container name")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	containerName, err := cmd.Flags().GetString("container")
	if err != nil {
		return fmt.Errorf("invalid container flag: %w", err)
	}

	cfg, resolver, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	generated, err := automount.ReadManifest(resolver.Manifest())
	if err != nil {
		return err
	}
	pairs := append(cfg.Pairs, generated...)

	queryDocker := docker.DaemonRunning()
	detector := state.NewDetector(resolver.Template(), resolver.Override(), pairs, containerName, queryDocker)
	st := detector.Detect()

	fmt.Printf("template:  %s (%s)\n", resolver.Template(), presence(st.TemplateExists))
	fmt.Printf("override:  %s (%s)\n", resolver.Override(), presence(st.OverrideExists))
	if st.TemplateExists && st.OverrideStale {
		fmt.Println("override is stale; run pre-up to regenerate")
	}
	for _, p := range st.Pairs {
		fmt.Printf("symlink:   %s -> %s (%s)\n", p.Pair.Target, p.Pair.Source, p.State)
	}
	if queryDocker {
		fmt.Printf("container: %s\n", docker.Status(containerName))
	} else {
		fmt.Println("container: docker daemon not reachable")
	}
	return nil
}

func presence(exists bool) string {
	if exists {
		return "present"
	}
	return "absent"
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the starter override template into the plugin root",
		RunE:  runInit,
	}
	addRootFlags(cmd)
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	_, resolver, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	written, err := embedded.WriteDefaultTemplate(resolver.Template())
	if err != nil {
		return err
	}
	if written {
		logger.Info("wrote starter template to %s", resolver.Template())
	} else {
		logger.Info("template already exists at %s; left untouched", resolver.Template())
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mars-hooks version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mars-hooks %s\n", version)
		},
	}
}
