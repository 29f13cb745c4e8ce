package scope

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// processIdentity implements IdentitySource from the running process.
type processIdentity struct{}

// NewIdentitySource returns an IdentitySource that reads the effective UID
// and XDG environment of the current process on every call.
func NewIdentitySource() IdentitySource {
	return processIdentity{}
}

func (processIdentity) Current() (Identity, error) {
	uid := unix.Geteuid()
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return Identity{}, fmt.Errorf("scope: lookup uid %d: %w", uid, err)
	}

	home := u.HomeDir
	if home == "" {
		home = os.Getenv("HOME")
	}

	return Identity{
		UID:        uid,
		Username:   u.Username,
		HomeDir:    home,
		ConfigHome: os.Getenv("XDG_CONFIG_HOME"),
		DataHome:   os.Getenv("XDG_DATA_HOME"),
	}, nil
}
