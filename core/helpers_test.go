package core

// seedUsers creates the given users and returns them with ids assigned.
func seedUsers(f *StoreFixture, inputs ...UserCreateInput) []UserWithoutSecrets {
	f.t.Helper()
	users := make([]UserWithoutSecrets, 0, len(inputs))
	for _, input := range inputs {
		u, err := f.users.CreateUser(f.ctx, input)
		if err != nil {
			f.t.Fatal(err)
		}
		users = append(users, *u)
	}
	return users
}

func seedChat(f *StoreFixture, name string, owner UserWithoutSecrets, members ...UserWithoutSecrets) *Chat {
	f.t.Helper()
	chat, err := f.chats.CreateChat(f.ctx, name, owner.ID)
	if err != nil {
		f.t.Fatal(err)
	}
	for _, m := range members {
		chat, err = f.chats.AddMember(f.ctx, chat.ID, m.ID)
		if err != nil {
			f.t.Fatal(err)
		}
	}
	return chat
}

func memberIDs(chat *Chat) []int {
	ids := make([]int, 0, len(chat.Members))
	for _, m := range chat.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func userInput(email, name string) UserCreateInput {
	return UserCreateInput{Email: email, Name: name, Password: "password123"}
}
