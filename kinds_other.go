//go:build !unix && !windows && !js

package faultline

func hostConstructors() []Constructor { return nil }
