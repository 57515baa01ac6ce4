package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// GetWorkDir expands root, joins path onto it and makes sure the directory exists.
func GetWorkDir(root string, path ...string) (string, error) {
	parts := append([]string{root}, path...)
	workDir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err = os.MkdirAll(workDir, 0o750); err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	log.WithField("path", workDir).Debug("work dir ready")
	return workDir, nil
}
