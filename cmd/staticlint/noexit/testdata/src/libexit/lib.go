package libexit

import "os"

func main() {
	os.Exit(1)
}

// Fail завершает процесс с кодом ошибки
func Fail() {
	os.Exit(1)
}
