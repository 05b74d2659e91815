package main

import (
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"sheetctl/internal/testsupport"
)

func TestTodoScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/todo",
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"seeduser": testsupport.CmdSeedUser,
			"seedpage": testsupport.CmdSeedPage,
			"seedtodo": testsupport.CmdSeedTodo,
			"envset":   testsupport.CmdEnvSet,
			"todoid":   testsupport.CmdTodoID,
		},
	})
}
