package qflip

// Version is overridden at build time with -ldflags "-X github.com/aretw0/qflip.Version=...".
var Version = "dev"
