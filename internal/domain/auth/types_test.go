package auth

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Fatalf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	for _, bad := range []string{"", "Admin", "teacher", "guest"} {
		if _, err := ParseRole(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestUser_UnmarshalCurrentShape(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":1,"name":"Ada","role":"admin"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "1" || u.Name != "Ada" || u.Role != RoleAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUser_UnmarshalLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want User
	}{
		{
			name: "backend login payload",
			in:   `{"user_id":"u-42","email":"s@example.com","name":"Sam","role":"student"}`,
			want: User{ID: "u-42", Email: "s@example.com", Name: "Sam", Role: RoleStudent},
		},
		{
			name: "username only",
			in:   `{"username":"admin","role":"admin"}`,
			want: User{Username: "admin", Name: "admin", Role: RoleAdmin},
		},
		{
			name: "missing fields",
			in:   `{}`,
			want: User{},
		},
		{
			name: "null id",
			in:   `{"id":null,"role":"tutor"}`,
			want: User{Role: RoleTutor},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.in), &u); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if u != tt.want {
				t.Fatalf("got %+v, want %+v", u, tt.want)
			}
		})
	}
}

func TestUser_UnmarshalToleratesOddFieldTypes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want User
	}{
		{"bool id", `{"id":true,"role":"admin"}`, User{Role: RoleAdmin}},
		{"object id", `{"id":{"nested":true},"email":"a@b.c","role":"tutor"}`, User{Email: "a@b.c", Role: RoleTutor}},
		{"array id falls back to user_id", `{"id":[1],"user_id":"u-1","role":"student"}`, User{ID: "u-1", Role: RoleStudent}},
		{"numeric name", `{"id":3,"name":5,"role":"admin"}`, User{ID: "3", Role: RoleAdmin}},
		{"numeric role", `{"id":"u-2","role":1}`, User{ID: "u-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.in), &u); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if u != tt.want {
				t.Fatalf("got %+v, want %+v", u, tt.want)
			}
		})
	}
}

func TestUser_UnmarshalRejectsNonObject(t *testing.T) {
	for _, in := range []string{`[]`, `"admin"`, `7`} {
		var u User
		if err := json.Unmarshal([]byte(in), &u); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func TestUserID_MarshalKeepsNumbers(t *testing.T) {
	b, err := json.Marshal(User{ID: "7", Role: RoleStudent})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"id":7,"role":"student"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	b, err = json.Marshal(User{ID: "007"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"id":"007","role":""}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestUser_RolePredicates(t *testing.T) {
	u := User{Role: RoleTutor}
	if !u.HasRole(RoleTutor) || u.HasRole(RoleAdmin) {
		t.Fatalf("HasRole mismatch")
	}
	if !u.HasAnyRole(RoleAdmin, RoleTutor) {
		t.Fatalf("expected tutor in admin|tutor")
	}
	if u.HasAnyRole() {
		t.Fatalf("empty role set must not match")
	}
}
