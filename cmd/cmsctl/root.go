package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"atelier/api/internal/cmsclient"
	"atelier/api/internal/logger"
)

type settings struct {
	APIURL   string `mapstructure:"api-url"`
	Identity string `mapstructure:"identity"`
	Verbose  bool   `mapstructure:"verbose"`
}

type cli struct {
	in       io.Reader
	out      io.Writer
	cfgFile  string
	settings settings
	log      logger.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out, log: logger.NewNop()}

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Read and edit site content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initializeConfig(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ./cmsctl.yaml)")
	flags.String("api-url", "http://localhost:8787", "content API base URL")
	flags.String("identity", "", "admin email sent as the access identity header")
	flags.BoolP("verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.categoriesCmd(),
		c.listCmd(),
		c.getCmd(),
		c.putCmd(),
		c.deleteCmd(),
	)
	return root
}

func (c *cli) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("cmsctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CMSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || c.cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&c.settings); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}

	if c.settings.Verbose {
		l, err := logger.New(logger.Config{Level: "debug", Development: true, OutputPaths: []string{"stderr"}})
		if err != nil {
			return err
		}
		c.log = l
	}
	return nil
}

func (c *cli) client(opts ...cmsclient.Option) *cmsclient.Client {
	base := []cmsclient.Option{cmsclient.WithLogger(c.log)}
	if c.settings.Identity != "" {
		base = append(base, cmsclient.WithIdentity(c.settings.Identity))
	}
	return cmsclient.New(c.settings.APIURL, append(base, opts...)...)
}
