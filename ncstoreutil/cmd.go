/*
Copyright © 2026 the ncstore authors.
This file is part of ncstore.

ncstore is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ncstore is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ncstore.  If not, see <http://www.gnu.org/licenses/>.*/

package ncstoreutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ncstore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to ncstore.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DataDir",
			usage: `
              DataDir is the directory holding the data files that make
              up the collection. It is ignored if DataFiles is set.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "FilePattern",
			usage: `
              FilePattern is the glob pattern that the names of the data
              files in DataDir must match. It is ignored if DataFiles is
              set.`,
			defaultVal: "*.nc",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DataFiles",
			usage: `
              DataFiles is a list of data files making up the collection,
              used in the given order. Files may be specified as local
              paths, http addresses, or blob storage locations, in which
              case they will be downloaded before use.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MaxSplitBytes",
			usage: `
              MaxSplitBytes is the upper bound on the number of bytes of
              file content covered by a single chunk of iteration.`,
			defaultVal: int(ncstore.DefaultMaxSplitBytes),
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CacheSize",
			usage: `
              CacheSize specifies the number of file descriptions to hold
              in an in-memory cache.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Decimation",
			usage: `
              Decimation specifies that only every Decimation'th row of
              each chunk should be read. The default of 1 reads every
              row.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{scanCmd.Flags(), extractCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "Variables",
			usage: `
              Variables restricts reading to the named variables. The
              default is to read all variables in the schema.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{scanCmd.Flags(), extractCmd.Flags()},
		},
		{
			name: "DerivedVariables",
			usage: `
              DerivedVariables maps the names of additional variables to
              expressions that define how they should be calculated from
              the stored variables, for example
              {"T2C": "T2 - 273.15"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{scanCmd.Flags()},
		},
		{
			name: "ReportFile",
			usage: `
              ReportFile is the location of an optional spreadsheet report
              of the scan results. It may be a local path or a blob storage
              location. The default is to write no report.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{scanCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the location of the NetCDF file the extracted
              data should be written to. It may be a local path or a blob
              storage location.`,
			defaultVal: "extract.nc",
			flagsets:   []*pflag.FlagSet{extractCmd.Flags()},
		},
		{
			name: "JobFile",
			usage: `
              JobFile is the location of a TOML file describing an
              extraction job. Values the job file gives for DataDir,
              FilePattern, DataFiles, Variables, Decimation,
              MaxSplitBytes, and OutputFile override the corresponding
              configuration variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{extractCmd.Flags()},
		},
		{
			name: "PlotVariable",
			usage: `
              PlotVariable is the name of the variable to plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the location the plot image should be saved to.
              It may be a local path or a blob storage location.`,
			defaultVal: "profile.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("NCSTORE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(describeCmd)
	Root.AddCommand(scanCmd)
	Root.AddCommand(extractCmd)
	Root.AddCommand(plotCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Printf(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("ncstore: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "ncstore",
	Short: "A chunked iterator over collections of NetCDF files.",
	Long: `ncstore reads collections of NetCDF files that share a schema, treating
each variable as the row-wise concatenation of its arrays across the files and
reading the result in chunks of bounded size, so that collections too large to
fit in memory can be processed one piece at a time.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'NCSTORE_var'
where 'var' is the name of the variable to be set. Many configuration variables
are additionally allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ncstore.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ncstore v%s\n", ncstore.Version)
	},
	DisableAutoGenTag: true,
}

// describeCmd is a command that prints the files and shared schema of
// a collection.
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe a collection of data files.",
	Long: `describe lists the files in the collection specified by the configuration,
resolves the schema they share, and prints the files, the schema, and any
warnings generated for files that are missing variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		ds, err := openDatastore(context.Background(), Cfg, outChan)
		if err != nil {
			return err
		}
		return Describe(cmd.OutOrStdout(), ds)
	},
	DisableAutoGenTag: true,
}

// scanCmd is a command that reads through a collection and prints
// summary statistics.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read a collection and print summary statistics.",
	Long: `scan reads through all of the data in the collection specified by the
configuration, one bounded chunk at a time, and prints summary statistics
for each selected variable and each derived variable. A spreadsheet report
can additionally be written by setting the ReportFile configuration
variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		ds, err := openDatastore(context.Background(), Cfg, outChan)
		if err != nil {
			return err
		}
		deriver, err := newDeriver(Cfg)
		if err != nil {
			return err
		}
		return Scan(cmd.OutOrStdout(), ds, deriver,
			os.ExpandEnv(Cfg.GetString("ReportFile")), outChan)
	},
	DisableAutoGenTag: true,
}

// extractCmd is a command that copies a subset of a collection to a
// new NetCDF file.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Copy a subset of a collection to a new NetCDF file.",
	Long: `extract reads the selected variables of the collection specified by the
configuration and writes them to a new NetCDF file, concatenating each
variable's rows across all of the files and keeping only every
Decimation'th row. Job parameters can also be given in a TOML file
specified by the JobFile configuration variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		if jobFile := os.ExpandEnv(Cfg.GetString("JobFile")); jobFile != "" {
			if err := loadExtractJob(jobFile, Cfg); err != nil {
				return err
			}
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		ds, err := openDatastore(context.Background(), Cfg, outChan)
		if err != nil {
			return err
		}
		return Extract(ds, outputFile, outChan)
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that plots the per-row mean of one variable.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the per-row mean of a variable.",
	Long: `plot reads one variable of the collection specified by the configuration
and saves a plot of each row's mean value to the location given by the
PlotFile configuration variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		ds, err := openDatastore(context.Background(), Cfg, outChan)
		if err != nil {
			return err
		}
		return Plot(ds, os.ExpandEnv(Cfg.GetString("PlotVariable")),
			os.ExpandEnv(Cfg.GetString("PlotFile")))
	},
	DisableAutoGenTag: true,
}
