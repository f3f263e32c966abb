/*
lensfish evaluates strong gravitational lens models: galaxies built from
light and mass profiles, traced through one or more lens planes.
*/
package main

import (
	"github.com/phil-mansfield/lensfish/cmd"
)

func main() {
	cmd.Execute()
}
