// Package daemonctl starts and stops the studiod process on behalf of the CLI.
package daemonctl
