// Package config loads gilt's two inputs: the overlay manifest (gilt.yml)
// and the tool settings.
//
// The manifest is a YAML sequence of overlays. Each overlay names a git
// repository, a version and the files to copy out of it:
//
//	- git: https://github.com/retr0h/ansible-etcd.git
//	  version: master
//	  dst: roles/retr0h.ansible-etcd/
//	- git: https://github.com/lorin/openstack-ansible-modules.git
//	  files:
//	    - src: "*_manage"
//	      dst: library/
//
// Parsing never touches the filesystem beyond reading the manifest bytes.
// Defaults (overlay name, version, base directory, lock file, clone
// directory) are resolved once, when the Config is built, and the result is
// read-only afterwards.
//
// Settings are layered with koanf: embedded defaults, then the settings
// file ($XDG_CONFIG_HOME/gilt/config.{yml,yaml,toml}), then GILT_*
// environment variables, then command-line overrides.
package config
