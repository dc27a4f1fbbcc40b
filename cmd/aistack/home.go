package main

import (
	"os"
	"os/user"
)

// invokingHome returns the home directory of the user who started aistack,
// looking through sudo so files land in the operator's home, not root's.
func invokingHome() string {
	return resolveHome(os.Getenv, user.Lookup, os.UserHomeDir)
}

func resolveHome(getenv func(string) string, lookup func(string) (*user.User, error), fallback func() (string, error)) string {
	if name := getenv("SUDO_USER"); name != "" && name != "root" {
		if u, err := lookup(name); err == nil && u.HomeDir != "" {
			return u.HomeDir
		}
	}
	home, err := fallback()
	if err != nil {
		return ""
	}
	return home
}
