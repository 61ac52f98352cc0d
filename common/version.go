package common

// PackageName is used as the prometheus namespace and the default log service tag.
const PackageName = "esign_backend"

// Version is overridden at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"
