package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr      string
	MaxImages int
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("IMGHARVEST_ADDR"),
		},
		&cli.IntFlag{
			Name:        "form-max-images",
			Usage:       "Maximum number of images selectable on the web form",
			Value:       20,
			Destination: &c.MaxImages,
			Sources:     cli.EnvVars("IMGHARVEST_FORM_MAX_IMAGES"),
		},
	}
}
