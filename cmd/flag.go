// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag maps a cli flag to its configuration key
type Flag struct {
	Config string
	Cli    string
}

type StringFlag struct {
	f *Flag
}

type StringPFlag struct {
	f  *Flag
	sh string
}

type IntFlag struct {
	f *Flag
}

type Float64Flag struct {
	f *Flag
}

type BoolFlag struct {
	f *Flag
}

type DurationFlag struct {
	f *Flag
}

type StringSliceFlag struct {
	f *Flag
}

type StringToStringFlag struct {
	f *Flag
}

func NewFlag(config, cli string) *Flag {
	return &Flag{
		Config: config,
		Cli:    cli,
	}
}

// bind binds the already registered cli flag to its configuration key
func (f *Flag) bind(cmd *cobra.Command) {
	if err := viper.BindPFlag(f.Config, cmd.PersistentFlags().Lookup(f.Cli)); err != nil {
		panic(err)
	}
}

func (f *Flag) String() *StringFlag {
	return &StringFlag{f: f}
}

func (f *StringFlag) Bind(cmd *cobra.Command, value, usage string) {
	cmd.PersistentFlags().String(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) StringP(shorthand string) *StringPFlag {
	return &StringPFlag{f: f, sh: shorthand}
}

func (f *StringPFlag) Bind(cmd *cobra.Command, value, usage string) {
	cmd.PersistentFlags().StringP(f.f.Cli, f.sh, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) Int() *IntFlag {
	return &IntFlag{f: f}
}

func (f *IntFlag) Bind(cmd *cobra.Command, value int, usage string) {
	cmd.PersistentFlags().Int(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) Float64() *Float64Flag {
	return &Float64Flag{f: f}
}

func (f *Float64Flag) Bind(cmd *cobra.Command, value float64, usage string) {
	cmd.PersistentFlags().Float64(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) Bool() *BoolFlag {
	return &BoolFlag{f: f}
}

func (f *BoolFlag) Bind(cmd *cobra.Command, value bool, usage string) {
	cmd.PersistentFlags().Bool(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) Duration() *DurationFlag {
	return &DurationFlag{f: f}
}

func (f *DurationFlag) Bind(cmd *cobra.Command, value time.Duration, usage string) {
	cmd.PersistentFlags().Duration(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) StringSlice() *StringSliceFlag {
	return &StringSliceFlag{f: f}
}

func (f *StringSliceFlag) Bind(cmd *cobra.Command, value []string, usage string) {
	cmd.PersistentFlags().StringSlice(f.f.Cli, value, usage)
	f.f.bind(cmd)
}

func (f *Flag) StringToString() *StringToStringFlag {
	return &StringToStringFlag{f: f}
}

func (f *StringToStringFlag) Bind(cmd *cobra.Command, value map[string]string, usage string) {
	cmd.PersistentFlags().StringToString(f.f.Cli, value, usage)
	f.f.bind(cmd)
}
