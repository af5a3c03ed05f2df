package integrations_test

import (
	"fmt"

	"github.com/matzehuels/actgraph/pkg/integrations"
)

func ExampleClient_URL() {
	// Paths are appended to the base URL, keeping any path prefix.
	c, err := integrations.NewClient("https://act.example.com/api/", integrations.Options{})
	if err != nil {
		panic(err)
	}
	fmt.Println(c.URL("/v1/objectType"))
	fmt.Println(c.URL("v1/factType"))
	// Output:
	// https://act.example.com/api/v1/objectType
	// https://act.example.com/api/v1/factType
}
