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
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/ncstore"
	"github.com/spf13/cast"
)

// openDatastore creates a Datastore from the configuration in cfg.
// If the DataFiles configuration variable is set, the named files are
// used in the given order, downloading any that are remote; otherwise
// the files in DataDir whose names match FilePattern are used.
// c, if not nil, is a channel across which error and logging messages
// will be sent.
func openDatastore(ctx context.Context, cfg *viper.Viper, c chan string) (*ncstore.Datastore, error) {
	o := &ncstore.Options{
		MaxSplitBytes:   int64(cfg.GetInt("MaxSplitBytes")),
		Decimation:      cfg.GetInt("Decimation"),
		SelectVariables: expandStringSlice(cfg.GetStringSlice("Variables")),
		CacheSize:       cfg.GetInt("CacheSize"),
	}
	files := expandStringSlice(cfg.GetStringSlice("DataFiles"))
	if len(files) > 0 {
		for i := range files {
			files[i] = maybeDownload(ctx, files[i], c)
		}
		return ncstore.OpenFiles(files, o)
	}
	return ncstore.Open(os.ExpandEnv(cfg.GetString("DataDir")),
		os.ExpandEnv(cfg.GetString("FilePattern")), o)
}

// newDeriver compiles the derived-variable expressions in the
// DerivedVariables configuration variable, returning nil if none are
// configured.
func newDeriver(cfg *viper.Viper) (*ncstore.Deriver, error) {
	expressions := GetStringMapString("DerivedVariables", cfg)
	if len(expressions) == 0 {
		return nil, nil
	}
	for k, v := range expressions {
		expressions[k] = os.ExpandEnv(v)
	}
	return ncstore.NewDeriver(expressions, nil)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="extract.nc")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("ncstore: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	case nil:
		return nil
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
