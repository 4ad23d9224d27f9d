package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	pb "watchlist-trader/src/grpc_control"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// watchlistctl drives a running trader over its gRPC control port:
//
//	watchlistctl subscribe TSLA AAPL
//	watchlistctl status
//	watchlistctl unsubscribe
func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "control server address")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: watchlistctl [-addr host:port] subscribe SYMBOLS... | unsubscribe | status")
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := pb.NewControlClient(conn)

	var out *structpb.Struct
	switch cmd := flag.Arg(0); cmd {
	case "subscribe":
		out, err = client.Subscribe(ctx, strings.Join(flag.Args()[1:], " "))
	case "unsubscribe":
		out, err = client.Unsubscribe(ctx)
	case "status":
		out, err = client.GetStatus(ctx)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(protojson.MarshalOptions{Multiline: true}.Format(out))
}
