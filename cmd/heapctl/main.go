// Command heapctl replays allocation traces against a heap region and
// inspects heap images stored in files.
package main

func main() {
	execute()
}
