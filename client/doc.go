// Package client provides a client for interacting with a caskdb server
// over TCP.
//
// Example:
//
//	c, err := client.Connect(client.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	err = c.Set("othello", "shakespeare")
//	author, ok, err := c.Get("othello")
package client
