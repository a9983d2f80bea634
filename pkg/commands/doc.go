// Package commands provides the builtin commands every host gets for free:
// state manipulation, logging, pauses and profile writes.
//
// Register installs all of them:
//
//	cmds := registry.NewCommands()
//	commands.Register(cmds, logger)
package commands
