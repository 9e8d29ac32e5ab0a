package config

import (
	"os"
	"runtime"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
CheckIfEnvVarsPresent verifies that every given environment variable is set
and non-empty, and exits the process after naming all the missing ones.
Binaries call it at startup so operators get one complete list instead of
peeling failures off one at a time.
*/
func CheckIfEnvVarsPresent(environmentVariableNames ...string) {
	missingAny := false

	for _, name := range environmentVariableNames {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			tl.Log(tl.Error, palette.RedBold, "%s environment variable '%s'", "Missing", name)
			missingAny = true
		}
	}

	if missingAny {
		os.Exit(1)
	}
}

/*
GetPackageName returns the short package name of the calling function, for
log lines that want to say who they speak for without hardcoding it.
*/
func GetPackageName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}

	fullName := runtime.FuncForPC(pc).Name()
	if slash := strings.LastIndex(fullName, "/"); slash >= 0 {
		fullName = fullName[slash+1:]
	}

	if dot := strings.Index(fullName, "."); dot >= 0 {
		fullName = fullName[:dot]
	}

	return fullName
}
