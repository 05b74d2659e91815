package main

import (
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"sheetctl/internal/testsupport"
)

func TestPageScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/page",
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"seeduser": testsupport.CmdSeedUser,
			"seedpage": testsupport.CmdSeedPage,
		},
	})
}
