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
	"fmt"
	"io/ioutil"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
)

// An extractJob describes one extraction in a TOML job file: the
// collection to read, the subset to keep, and the output file to
// write.
type extractJob struct {
	DataDir       string
	FilePattern   string
	DataFiles     []string
	Variables     []string
	Decimation    int
	MaxSplitBytes int64
	OutputFile    string
}

// loadExtractJob reads the TOML job description at file and applies
// the values it gives to cfg, overriding the corresponding
// configuration variables. Values the job file leaves out keep their
// configured settings.
func loadExtractJob(file string, cfg *viper.Viper) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return fmt.Errorf("ncstore: reading job file: %v", err)
	}
	job := new(extractJob)
	if _, err := toml.Decode(string(b), job); err != nil {
		return fmt.Errorf("ncstore: parsing job file %s: %v", file, err)
	}
	if job.DataDir != "" {
		cfg.Set("DataDir", os.ExpandEnv(job.DataDir))
	}
	if job.FilePattern != "" {
		cfg.Set("FilePattern", job.FilePattern)
	}
	if len(job.DataFiles) > 0 {
		cfg.Set("DataFiles", expandStringSlice(job.DataFiles))
	}
	if len(job.Variables) > 0 {
		cfg.Set("Variables", expandStringSlice(job.Variables))
	}
	if job.Decimation > 0 {
		cfg.Set("Decimation", job.Decimation)
	}
	if job.MaxSplitBytes > 0 {
		cfg.Set("MaxSplitBytes", int(job.MaxSplitBytes))
	}
	if job.OutputFile != "" {
		cfg.Set("OutputFile", os.ExpandEnv(job.OutputFile))
	}
	return nil
}
