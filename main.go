package main

import (
	"fmt"
	"os"

	"github.com/appministry/stevedore/cmd/build"
	"github.com/appministry/stevedore/cmd/inspect"
	"github.com/appministry/stevedore/cmd/kill"
	"github.com/appministry/stevedore/cmd/ls"
	profilesCreate "github.com/appministry/stevedore/cmd/profiles/create"
	profilesInspect "github.com/appministry/stevedore/cmd/profiles/inspect"
	profilesLs "github.com/appministry/stevedore/cmd/profiles/ls"
	"github.com/appministry/stevedore/cmd/purge"
	"github.com/appministry/stevedore/cmd/render"
	"github.com/appministry/stevedore/cmd/run"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "stevedore",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Work with stevedore profiles",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func init() {
	profilesCmd.AddCommand(profilesCreate.Command)
	profilesCmd.AddCommand(profilesInspect.Command)
	profilesCmd.AddCommand(profilesLs.Command)
	rootCmd.AddCommand(build.Command)
	rootCmd.AddCommand(inspect.Command)
	rootCmd.AddCommand(kill.Command)
	rootCmd.AddCommand(ls.Command)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(purge.Command)
	rootCmd.AddCommand(render.Command)
	rootCmd.AddCommand(run.Command)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
