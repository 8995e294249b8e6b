package cmd

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

type configView struct {
	Node struct {
		Host    string `toml:"host"`
		Port    int    `toml:"port"`
		DataDir string `toml:"data_dir"`
	} `toml:"node"`
	Metadata struct {
		URL  string `toml:"url"`
		Path string `toml:"path"`
	} `toml:"metadata"`
	Session struct {
		Lifecycle bool   `toml:"lifecycle"`
		TTL       string `toml:"ttl"`
	} `toml:"session"`
	GC struct {
		Interval string `toml:"interval"`
	} `toml:"gc"`
	Dispatch struct {
		CallTimeout string `toml:"call_timeout"`
	} `toml:"dispatch"`
	Shards int `toml:"shards"`
	Log    struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

func newConfigCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg

			var view configView
			view.Node.Host = cfg.Node.Host
			view.Node.Port = cfg.Node.Port
			view.Node.DataDir = cfg.Node.DataDir
			view.Metadata.URL = cfg.Metadata.URL
			view.Metadata.Path = cfg.Metadata.Path
			view.Session.Lifecycle = cfg.Session.Lifecycle
			view.Session.TTL = cfg.Session.TTL.String()
			view.GC.Interval = cfg.GC.Interval.String()
			view.Dispatch.CallTimeout = cfg.Dispatch.CallTimeout.String()
			view.Shards = cfg.Shards
			view.Log.Level = cfg.Log.Level
			view.Log.Format = cfg.Log.Format

			data, err := toml.Marshal(view)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
