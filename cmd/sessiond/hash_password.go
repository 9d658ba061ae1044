package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronmore/sessionauth/password"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the hash of a password",
	Long:  `Hashes a password with PASSWORD_ALGORITHM. The password is read from stdin when not given as an argument.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		hasher, err := password.New(cfg.PasswordAlgorithm, cfg.BcryptCost)
		if err != nil {
			return err
		}

		var pwd string
		if len(args) == 1 {
			pwd = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			pwd = strings.TrimRight(line, "\r\n")
		}

		hashed, err := hasher.Hash(pwd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
