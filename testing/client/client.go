package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/foomo/clientregistry/client"
	"github.com/foomo/clientregistry/pkg/registry"
)

var (
	flagAddr  = flag.String("addr", "http://127.0.0.1:8080/clients", "set addr")
	flagList  = flag.Bool("list", false, "list clients after each round")
	flagNum   = flag.Int("num", 100, "num repititions")
	flagDelay = flag.Int("delay", 2, "delay in seconds")
)

func main() {
	flag.Parse()

	c, errClient := client.NewHTTPClient(*flagAddr)
	if errClient != nil {
		log.Fatal(errClient)
	}
	defer c.ShutDown()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 1; i <= *flagNum; i++ {
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			created, err := c.Create(ctx, registry.Record{
				Name:  fmt.Sprintf("client %d", num),
				Email: fmt.Sprintf("client-%d@example.com", num),
				Phone: fmt.Sprintf("%04d", num),
				City:  "Lisbon",
			})
			if err != nil {
				log.Fatal(err)
			}
			log.Println(num, "created", created.ID)
		}(i)

		if *flagList {
			all, err := c.List(ctx)
			if err != nil {
				log.Fatal(err)
			}
			log.Println(i, "clients:", len(all))
		}
		time.Sleep(time.Duration(*flagDelay) * time.Second)
	}
	wg.Wait()
}
