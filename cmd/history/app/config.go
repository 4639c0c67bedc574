package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath    string
	Clear     bool
	Confirmed bool
	Share     bool
	ChartFile string
	Format    ImageFormat
	Goal      int
	Days      int
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return parseArgs(flag.CommandLine, os.Args[1:])
}

func parseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat string
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.BoolVar(&c.Clear, "clear", false, "Delete every daily record")
	fs.BoolVar(&c.Confirmed, "yes", false, "Confirm a destructive operation such as -clear")
	fs.BoolVar(&c.Share, "share", false, "Print a progress message to share")
	fs.StringVar(&c.ChartFile, "chart", "", "Path to the output chart image")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.IntVar(&c.Goal, "goal", 0, "Daily step goal shown on the chart and in the listing")
	fs.IntVar(&c.Days, "days", 0, "Limit output to the last n days, 0 for all")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.Goal < 0 {
		err = fmt.Errorf("invalid goal: %d", c.Goal)
	} else if c.Days < 0 {
		err = fmt.Errorf("invalid number of days: %d", c.Days)
	} else if c.Clear && (c.Share || c.ChartFile != "") {
		err = errors.New("clear cannot be combined with share or chart")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	if c.ChartFile != "" && filepath.Ext(c.ChartFile) == "" {
		c.ChartFile = fmt.Sprintf("%s.%s", c.ChartFile, c.Format)
	}
	return c, nil
}
